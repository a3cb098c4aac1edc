package command

import (
	"strconv"
	"strings"

	"github.com/lakshya24/redis-from-scratch/internal/resp"
)

func handleReplconf(c *Context, argv []string) ([]byte, []byte) {
	if len(argv) >= 2 && strings.EqualFold(argv[1], "GETACK") && c.Offset != nil {
		offset := strconv.FormatInt(c.Offset(), 10)
		return resp.Encode([]resp.Value{"REPLCONF", "ACK", offset}), nil
	}
	return okReply, nil
}
