package product

import (
	"bytes"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/marketbarrio/internal/codec"
)

// gzipMagic is the two-byte header of a gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// LoadFile reads a catalog from a JSON file. Files ending in .gz, or
// starting with a gzip header, are decompressed first.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalog %s", path)
	}
	defer func() { _ = f.Close() }()

	c, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load catalog %s", path)
	}
	return c, nil
}

// Load reads a JSON array of products from r, transparently handling gzip.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}

	if bytes.HasPrefix(data, gzipMagic) {
		gz, err := pgzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()

		if data, err = io.ReadAll(gz); err != nil {
			return nil, errors.Wrap(err, "decompress")
		}
	}

	products, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return NewCatalog(products)
}

// Decode parses a JSON array of products. Identifiers may be strings or
// numbers; prices may be numbers or numeric strings.
func Decode(data []byte) ([]Product, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, errors.New("catalog must be a JSON array")
	}

	var products []Product
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return errors.Wrapf(err, "product %d", len(products))
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (Product, error) {
	var p Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = codec.Scalar(d)
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "price":
			var s string
			if s, err = codec.Scalar(d); err == nil {
				p.Price, err = decimal.NewFromString(s)
			}
		case "unit":
			p.Unit, err = d.Str()
		case "emoji", "icon":
			p.Emoji, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}
