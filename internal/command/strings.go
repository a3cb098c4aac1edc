package command

import (
	"strconv"
	"strings"
	"time"
)

var okReply = []byte("+OK\r\n")

func handleSet(c *Context, argv []string) ([]byte, []byte) {
	if len(argv) < 3 {
		return errReply("ERR wrong number of arguments for 'set' command"), nil
	}
	key, val := argv[1], argv[2]
	var ttl time.Duration
	for i := 3; i < len(argv)-1; i++ {
		if strings.EqualFold(argv[i], "PX") {
			ms, err := strconv.ParseInt(argv[i+1], 10, 64)
			if err == nil && ms > 0 {
				ttl = time.Duration(ms) * time.Millisecond
			}
		}
	}
	c.Store.Set(key, val, ttl)
	return okReply, nil
}

func handleGet(c *Context, argv []string) ([]byte, []byte) {
	if len(argv) < 2 {
		return errReply("ERR wrong number of arguments for 'get' command"), nil
	}
	e, ok := c.Store.Get(argv[1])
	if !ok {
		return nullBulk, nil
	}
	return bulkString(e.Str), nil
}

func handleType(c *Context, argv []string) ([]byte, []byte) {
	if len(argv) < 2 {
		return []byte("+none\r\n"), nil
	}
	return []byte("+" + c.Store.TypeOf(argv[1]) + "\r\n"), nil
}
