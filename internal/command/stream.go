package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/lakshya24/redis-from-scratch/internal/resp"
	"github.com/lakshya24/redis-from-scratch/internal/store"
)

func handleXadd(c *Context, argv []string) ([]byte, []byte) {
	if len(argv) < 5 {
		return errReply("ERR wrong number of arguments for 'xadd' command"), nil
	}
	key, id, field, value := argv[1], argv[2], argv[3], argv[4]
	newID, err := c.Store.XAdd(key, id, field, value)
	if err != nil {
		switch err {
		case store.ErrXaddZero:
			return errReply("ERR The ID specified in XADD must be greater than 0-0"), nil
		case store.ErrXaddBackward:
			return errReply("ERR The ID specified in XADD is equal or smaller than the target stream top item"), nil
		case store.ErrWrongType:
			return simpleReply("Not a valid stream key"), nil
		default:
			return errReply("ERR " + err.Error()), nil
		}
	}
	return simpleReply(newID), nil
}

func handleXrange(c *Context, argv []string) ([]byte, []byte) {
	if len(argv) < 4 {
		return errReply("ERR wrong number of arguments for 'xrange' command"), nil
	}
	entries, err := c.Store.XRange(argv[1], argv[2], argv[3])
	if err != nil {
		if err == store.ErrWrongType {
			return simpleReply("Not a valid stream key"), nil
		}
		return errReply("ERR " + err.Error()), nil
	}
	return resp.Encode(encodeStreamEntries(entries)), nil
}

func handleXread(c *Context, argv []string) ([]byte, []byte) {
	rest := argv[1:]
	blocking := false
	var block time.Duration

	if len(rest) >= 2 && strings.EqualFold(rest[0], "BLOCK") {
		ms, err := strconv.ParseInt(rest[1], 10, 64)
		if err != nil || ms < 0 {
			return errReply("ERR timeout is not an integer or out of range"), nil
		}
		blocking = true
		block = time.Duration(ms) * time.Millisecond
		rest = rest[2:]
	}

	if len(rest) < 1 || !strings.EqualFold(rest[0], "STREAMS") {
		return errReply("ERR syntax error"), nil
	}
	rest = rest[1:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return errReply("ERR Unbalanced XREAD list of streams: for each stream key an ID or '$' must be specified."), nil
	}

	half := len(rest) / 2
	keys := rest[:half]
	ids := rest[half:]

	results := c.Store.XRead(c.Ctx, keys, ids, block, blocking)
	if blocking && !anyResultHasEntries(results) {
		return resp.NullBulk, nil
	}

	out := make([]resp.Value, 0, len(results))
	for _, r := range results {
		out = append(out, resp.Value([]resp.Value{r.Key, encodeStreamEntries(r.Entries)}))
	}
	return resp.Encode(out), nil
}

func anyResultHasEntries(results []store.StreamResult) bool {
	for _, r := range results {
		if len(r.Entries) > 0 {
			return true
		}
	}
	return false
}

func encodeStreamEntries(entries []store.StreamEntry) []resp.Value {
	out := make([]resp.Value, 0, len(entries))
	for _, e := range entries {
		out = append(out, resp.Value([]resp.Value{
			e.ID(),
			[]resp.Value{e.EntryKey, e.EntryValue},
		}))
	}
	return out
}
