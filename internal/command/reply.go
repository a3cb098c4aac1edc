package command

import "github.com/lakshya24/redis-from-scratch/internal/resp"

var nullBulk = resp.NullBulk

func bulkString(s string) []byte {
	return resp.Encode(s)
}

func errReply(msg string) []byte {
	return []byte("-" + msg + "\r\n")
}

func simpleReply(msg string) []byte {
	return []byte("+" + msg + "\r\n")
}
