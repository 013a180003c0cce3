package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
)

const maxRequestBody = 64 << 10

// Request is the inbound request handed to a Handler.
type Request struct {
	*http.Request
}

// GetParam returns the named path segment, e.g. "ip" for "/blocked-ips/:ip".
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// ClientIP is the address the client IP middleware settled on. Without that
// middleware it falls back to the socket peer.
func (r *Request) ClientIP() string {
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr().Unmap().String()
	}
	return r.RemoteAddr
}

func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryBool reads an optional boolean query value; absent means false.
func (r *Request) GetQueryBool(key string) (bool, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return false, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, goerror.NewInvalidFormat("Invalid query " + key)
	}
	return v, nil
}

// DecodeBody reads exactly one JSON document into dst. Unknown fields,
// trailing content and bodies over 64KiB are rejected as invalid format.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if !errors.Is(dec.Decode(&struct{}{}), io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}
