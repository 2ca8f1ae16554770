package models

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot encodings accepted by Export and Import.
const (
	FormatJSON    = "json"
	FormatMsgPack = "msgpack"
)

// Export encodes the current envelope in the requested format.
// JSON output is byte-for-byte what the store holds for the same history;
// msgpack is the compact form used for moving history between devices.
func (s *HistoryService) Export(format string) ([]byte, error) {
	env := s.GetAll()

	switch format {
	case FormatJSON, "":
		data, err := json.Marshal(env)
		if err != nil {
			return nil, serr.Wrap(err, "failed to encode history as json")
		}
		return data, nil

	case FormatMsgPack:
		data, err := msgpack.Marshal(env)
		if err != nil {
			return nil, serr.Wrap(err, "failed to encode history as msgpack")
		}
		return data, nil

	default:
		return nil, serr.New("unsupported export format: " + format)
	}
}

// DecodeSnapshot parses an exported envelope without storing it.
func DecodeSnapshot(data []byte, format string) (HistoryEnvelope, error) {
	var env HistoryEnvelope

	switch format {
	case FormatJSON, "":
		if err := json.Unmarshal(data, &env); err != nil {
			return env, serr.Wrap(err, "failed to decode json snapshot")
		}
	case FormatMsgPack:
		if err := msgpack.Unmarshal(data, &env); err != nil {
			return env, serr.Wrap(err, "failed to decode msgpack snapshot")
		}
	default:
		return env, serr.New("unsupported import format: " + format)
	}

	if env.Version != SchemaVersion {
		return env, serr.New("snapshot schema version " + env.Version + " does not match " + SchemaVersion)
	}
	return env, nil
}

// Import replaces the stored history with a snapshot. Records with blank
// terms are dropped, later duplicates of a term (ignoring case) are dropped,
// and the result is capped at MaxSearches like any other write.
func (s *HistoryService) Import(data []byte, format string) bool {
	env, err := DecodeSnapshot(data, format)
	if err != nil {
		logger.LogErr(err, "history import rejected")
		return false
	}

	cleaned := make([]SearchRecord, 0, len(env.Searches))
	for _, rec := range env.Searches {
		rec.Term = strings.TrimSpace(rec.Term)
		if rec.Term == "" || findTerm(cleaned, rec.Term) >= 0 {
			continue
		}
		if rec.ID == "" {
			rec.ID = s.newID()
		}
		if rec.Source == "" {
			rec.Source = SourceManual
		}
		cleaned = append(cleaned, rec)
	}

	logger.Info("Importing search history", "records", len(cleaned), "format", format)
	return s.codec.Save(cleaned)
}
