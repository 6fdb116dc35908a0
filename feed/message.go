package feed

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tapesonic/tapesonic/tape"
)

// handleMessage decodes one websocket message, an array of records,
// and dispatches each record by its type tag. Unknown tags and
// server-reported errors are logged and skipped so one odd record
// never takes the stream down.
func (c *client) handleMessage(b []byte) error {
	d := msgpack.NewDecoder(bytes.NewReader(b))
	arrLen, err := d.DecodeArrayLen()
	if err != nil {
		return fmt.Errorf("decoding message array: %w", err)
	}
	for i := 0; i < arrLen; i++ {
		if err := c.handleRecord(d); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) handleRecord(d *msgpack.Decoder) error {
	n, err := d.DecodeMapLen()
	if err != nil {
		return fmt.Errorf("decoding record map: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("empty record")
	}
	// the type tag is always the first key
	key, err := d.DecodeString()
	if err != nil {
		return err
	}
	if key != "T" {
		return fmt.Errorf("first key is %q, not the type tag", key)
	}
	msgType, err := d.DecodeString()
	if err != nil {
		return err
	}
	switch msgType {
	case "t":
		return c.handleTrade(d, n-1)
	case "q":
		return c.handleQuote(d, n-1)
	case "error":
		return c.handleError(d, n-1)
	case "subscription":
		return discardRecord(d, n-1)
	default:
		c.logger.Infof("feed: skipping unknown record type %q", msgType)
		return discardRecord(d, n-1)
	}
}

func (c *client) handleTrade(d *msgpack.Decoder, n int) error {
	trade := tape.Trade{}
	for i := 0; i < n; i++ {
		key, err := d.DecodeString()
		if err != nil {
			return err
		}
		switch key {
		case "S":
			trade.Symbol, err = d.DecodeString()
		case "p":
			trade.Price, err = d.DecodeFloat64()
		case "s":
			trade.Size, err = d.DecodeUint32()
		case "t":
			trade.Timestamp, err = d.DecodeTime()
		default:
			err = d.Skip()
		}
		if err != nil {
			return err
		}
	}
	if c.tradeHandler != nil {
		c.tradeHandler(trade)
	}
	return nil
}

func (c *client) handleQuote(d *msgpack.Decoder, n int) error {
	quote := tape.Quote{}
	for i := 0; i < n; i++ {
		key, err := d.DecodeString()
		if err != nil {
			return err
		}
		switch key {
		case "S":
			quote.Symbol, err = d.DecodeString()
		case "bp":
			quote.BidPrice, err = d.DecodeFloat64()
		case "bs":
			quote.BidSize, err = d.DecodeUint32()
		case "ap":
			quote.AskPrice, err = d.DecodeFloat64()
		case "as":
			quote.AskSize, err = d.DecodeUint32()
		case "t":
			quote.Timestamp, err = d.DecodeTime()
		default:
			err = d.Skip()
		}
		if err != nil {
			return err
		}
	}
	if c.quoteHandler != nil {
		c.quoteHandler(quote)
	}
	return nil
}

func (c *client) handleError(d *msgpack.Decoder, n int) error {
	e := errorMessage{}
	for i := 0; i < n; i++ {
		key, err := d.DecodeString()
		if err != nil {
			return err
		}
		switch key {
		case "msg":
			e.msg, err = d.DecodeString()
		case "code":
			e.code, err = d.DecodeInt()
		default:
			err = d.Skip()
		}
		if err != nil {
			return err
		}
	}
	c.logger.Errorf("feed: server error: %s", e)
	return nil
}

func discardRecord(d *msgpack.Decoder, n int) error {
	for i := 0; i < 2*n; i++ {
		if err := d.Skip(); err != nil {
			return err
		}
	}
	return nil
}
