package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"pricetrack/internal/parser"
)

// Options controls how a JSON URL list is read.
type Options struct {
	// Key names the URL field of object elements, matched after
	// parser.NormalizeHeader. Empty means parser.DefaultColumn.
	Key string
}

// StreamURLs parses a URL list from r and streams one parser.Record per URL.
//
// Accepted shapes:
//   - a root array whose elements are URL strings or objects carrying Key
//   - a root object with an array field (envelope pattern); the first array
//     field is streamed and the rest of the object is skipped
//   - a single root object carrying Key
//   - any of the above followed by JSONL objects, one per line
//
// Record.Line is the 1-based position of the element in the stream. Elements
// without a usable URL are reported through onErr and skipped; syntax errors
// end the stream.
func StreamURLs(
	ctx context.Context,
	r io.Reader,
	opt Options,
	out chan<- parser.Record,
	onErr func(line int, err error),
) error {
	dec := json.NewDecoder(r)
	key := parser.NormalizeHeader(opt.Key)
	if key == "" {
		key = parser.DefaultColumn
	}

	line := 0
	emit := func(v any) error {
		line++
		u, err := urlFromElement(v, key)
		if err != nil {
			if onErr != nil {
				onErr(line, err)
			}
			return nil
		}
		select {
		case out <- parser.Record{Line: line, URL: u}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("json: read first token: %w", err)
	}

	switch tok {
	case json.Delim('['):
		if err := streamArray(ctx, dec, emit); err != nil {
			return err
		}
	case json.Delim('{'):
		if err := streamEnvelopeOrSingle(ctx, dec, key, emit); err != nil {
			return err
		}
	default:
		return fmt.Errorf("json: unsupported root token %v (want object or array)", tok)
	}

	return streamTrailingObjects(dec, emit)
}

// urlFromElement extracts the URL of one list element.
func urlFromElement(v any, key string) (string, error) {
	switch t := v.(type) {
	case string:
		if u, ok := parser.CleanURL(t); ok {
			return u, nil
		}
		return "", fmt.Errorf("json: blank url")
	case map[string]any:
		for k, val := range t {
			if parser.NormalizeHeader(k) != key {
				continue
			}
			s, ok := val.(string)
			if !ok {
				return "", fmt.Errorf("json: %q is %T, want string", k, val)
			}
			if u, ok := parser.CleanURL(s); ok {
				return u, nil
			}
			return "", fmt.Errorf("json: blank url")
		}
		return "", fmt.Errorf("json: object has no %q field", key)
	default:
		return "", fmt.Errorf("json: element is %T, want string or object", v)
	}
}

// streamArray emits the elements of the current array (after '[' has been
// consumed) and consumes the closing ']'. null elements are skipped.
func streamArray(ctx context.Context, dec *json.Decoder, emit func(any) error) error {
	for dec.More() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("json: decode array element: %w", err)
		}
		if raw == nil {
			continue
		}
		if err := emit(raw); err != nil {
			return err
		}
	}

	end, err := dec.Token()
	if err != nil {
		return fmt.Errorf("json: read array end: %w", err)
	}
	if end != json.Delim(']') {
		return fmt.Errorf("json: expected array end ']', got %v", end)
	}
	return nil
}

// streamEnvelopeOrSingle walks a root object (after '{' has been consumed).
// The first array field is streamed as the list; without one, the object
// itself is a single element.
func streamEnvelopeOrSingle(ctx context.Context, dec *json.Decoder, key string, emit func(any) error) error {
	single := map[string]any{}
	streamed := false

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json: read object key: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("json: object key not a string (got %T)", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json: read object value: %w", err)
		}

		if valTok == json.Delim('[') && !streamed {
			if err := streamArray(ctx, dec, emit); err != nil {
				return err
			}
			streamed = true
			continue
		}
		if _, isDelim := valTok.(json.Delim); isDelim {
			if err := skipValueFromFirstToken(dec, valTok); err != nil {
				return err
			}
			continue
		}
		if parser.NormalizeHeader(name) == key {
			single[name] = valTok
		}
	}

	end, err := dec.Token()
	if err != nil {
		return fmt.Errorf("json: read object end: %w", err)
	}
	if end != json.Delim('}') {
		return fmt.Errorf("json: expected object end '}', got %v", end)
	}

	if streamed {
		return nil
	}
	return emit(single)
}

func streamTrailingObjects(dec *json.Decoder, emit func(any) error) error {
	for {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("json: decode trailing object: %w", err)
		}
		if err := emit(obj); err != nil {
			return err
		}
	}
}

// skipValueFromFirstToken consumes the rest of an object or array whose
// opening delimiter has already been read.
func skipValueFromFirstToken(dec *json.Decoder, tok any) error {
	d, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	if d != '{' && d != '[' {
		return fmt.Errorf("json: unexpected delimiter %q", d)
	}

	for dec.More() {
		next, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json: skip value: %w", err)
		}
		if err := skipValueFromFirstToken(dec, next); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("json: skip value end: %w", err)
	}
	return nil
}
