package xbind

import (
	"log/slog"
	"sort"
)

// ParamBinder receives one positional bind per call. *Stmt implements it.
type ParamBinder interface {
	BindParam(pos int, v any) error
}

// bindRequest resolves req against ix and issues the positional binds.
// A nil ix means the statement is pure positional.
//
// Identifiers are all validated before the first BindParam call, and the
// first BindParam failure stops the rest.
func bindRequest(b ParamBinder, ix *ParamIndex, req Request, log *slog.Logger) error {
	if ix == nil {
		if req.kind == reqMap {
			return ErrShapeMismatch
		}
		for i, v := range req.values {
			if err := b.BindParam(i+1, v); err != nil {
				return err
			}
		}
		return nil
	}

	named := req.named
	if req.kind != reqMap {
		if ix.Scheme() == SchemeNumeric {
			return bindByNumber(b, ix, req.values, log)
		}
		m, err := pairsToMap(req.values)
		if err != nil {
			return err
		}
		named = m
	}
	return bindByName(b, ix, named, log)
}

// bindByNumber binds values[i] to every occurrence of identifier i+1.
func bindByNumber(b ParamBinder, ix *ParamIndex, values []any, log *slog.Logger) error {
	for i, v := range values {
		positions := ix.positionsForNumber(i + 1)
		if len(positions) == 0 {
			log.Debug("bind value has no placeholder", "identifier", i+1)
			continue
		}
		for _, pos := range positions {
			if err := b.BindParam(pos, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func bindByName(b ParamBinder, ix *ParamIndex, named map[string]any, log *slog.Logger) error {
	keys := make([]string, 0, len(named))
	for k := range named {
		if err := validateIdentifier(k); err != nil {
			return err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		positions := ix.PositionsFor(k)
		if len(positions) == 0 {
			log.Debug("bind key has no placeholder", "identifier", k)
			continue
		}
		log.Debug("bind", "identifier", k, "positions", positions)
		for _, pos := range positions {
			if err := b.BindParam(pos, named[k]); err != nil {
				return err
			}
		}
	}
	return nil
}
