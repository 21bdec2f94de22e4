package httpserver

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/swyh-go/swyh-go/internal/config"
)

// streamParams holds the per-request overrides a renderer can pass on the
// stream URL's query string, the Go equivalent of original_source's
// src/server/query_params.rs (?bd=16|24, ?ss=<chunked mode name>).
type streamParams struct {
	bits    *config.BitDepth
	chunked *config.ChunkedMode
}

// parseStreamParams parses the raw query string of a stream request. An
// absent or unrecognized key is simply left nil, so the caller falls back
// to config.Config's defaults, matching the original's "overrides are
// optional" behavior.
func parseStreamParams(rawQuery string) streamParams {
	var p streamParams
	if rawQuery == "" {
		return p
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return p
	}

	if bd := values.Get("bd"); bd != "" {
		if n, err := strconv.Atoi(bd); err == nil {
			switch n {
			case 16:
				b := config.BitDepth16
				p.bits = &b
			case 24:
				b := config.BitDepth24
				p.bits = &b
			}
		}
	}

	if ss := values.Get("ss"); ss != "" {
		switch strings.ToLower(ss) {
		case "chunked", "nonechunked":
			m := config.ChunkedAuto
			p.chunked = &m
		case "notchunked", "u32maxnotchunked", "u64maxnotchunked":
			m := config.ChunkedDisabled
			p.chunked = &m
		}
	}

	return p
}

func (p streamParams) resolveBits(fallback config.BitDepth) config.BitDepth {
	if p.bits != nil {
		return *p.bits
	}
	return fallback
}

func (p streamParams) resolveChunked(fallback config.ChunkedMode) config.ChunkedMode {
	if p.chunked != nil {
		return *p.chunked
	}
	return fallback
}
