package main

import (
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/xenking/marketbarrio/internal/app"
	"github.com/xenking/marketbarrio/internal/codec"
	"github.com/xenking/marketbarrio/internal/session"
)

// importCommand loads a browser local storage export into a session. The
// export is a JSON object keyed by storage key; values are either the stored
// strings or the arrays themselves.
func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a storefront local storage export into a session",
		ArgsUsage: "<export.json>",
		Flags:     []cli.Flag{sessionFlag()},
		Action: withStore(func(c *cli.Context, store app.Store) error {
			if c.NArg() != 1 {
				return errors.New("expected exactly one export file")
			}
			data, err := os.ReadFile(c.Args().First())
			if err != nil {
				return errors.Wrap(err, "read export")
			}
			values, err := decodeExport(data)
			if err != nil {
				return err
			}

			id := c.String("session")
			lg := zctx.From(c.Context)
			for _, name := range []string{codec.CartKey, codec.OrdersKey} {
				value, ok := values[name]
				if !ok {
					continue
				}
				if err := store.Set(c.Context, session.Key(id, name), string(value)); err != nil {
					return errors.Wrapf(err, "store %s", name)
				}
				lg.Info("Imported ledger", zap.String("session", id), zap.String("key", name))
			}
			return nil
		}),
	}
}

// decodeExport returns the validated ledger values of an export, re-encoded
// in canonical form.
func decodeExport(data []byte) (map[string][]byte, error) {
	values := make(map[string][]byte)
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != codec.CartKey && key != codec.OrdersKey {
			return d.Skip()
		}
		var raw []byte
		switch d.Next() {
		case jx.String:
			s, err := d.Str()
			if err != nil {
				return err
			}
			raw = []byte(s)
		default:
			r, err := d.Raw()
			if err != nil {
				return err
			}
			raw = []byte(r)
		}

		switch key {
		case codec.CartKey:
			items, err := codec.DecodeCart(raw)
			if err != nil {
				return err
			}
			values[key] = codec.EncodeCart(items)
		case codec.OrdersKey:
			orders, err := codec.DecodeOrders(raw)
			if err != nil {
				return err
			}
			values[key] = codec.EncodeOrders(orders)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode export")
	}
	return values, nil
}
