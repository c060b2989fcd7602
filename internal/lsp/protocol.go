// SPDX-License-Identifier: MPL-2.0

package lsp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sourcegraph/jsonrpc2"
)

// CodeServerNotInitialized is the LSP error code for requests received before
// initialize.
const CodeServerNotInitialized int64 = -32002

func rpcError(code int64, format string, args ...any) *jsonrpc2.Error {
	return &jsonrpc2.Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// decodeParams unmarshals request params into v. Absent params are an
// invalid-params error.
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return rpcError(jsonrpc2.CodeInvalidParams, "missing params")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return rpcError(jsonrpc2.CodeInvalidParams, "%v", err)
	}
	return nil
}

// stdio joins the two halves of a byte stream into the io.ReadWriteCloser
// a jsonrpc2 stream needs. Close closes whichever halves are closers.
type stdio struct {
	io.Reader
	io.Writer
}

func (s stdio) Close() error {
	var errs []error
	if c, ok := s.Reader.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if c, ok := s.Writer.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func newStream(in io.Reader, out io.Writer) jsonrpc2.ObjectStream {
	return jsonrpc2.NewBufferedStream(stdio{Reader: in, Writer: out}, jsonrpc2.VSCodeObjectCodec{})
}
