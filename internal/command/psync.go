package command

import (
	"encoding/base64"
	"strconv"
)

// emptyRDB is the fixed, empty-database RDB snapshot every master
// transmits on PSYNC (spec.md §6 "Snapshot payload"). The core never
// decodes a real RDB file; this constant is the whole of "persistence"
// it needs.
var emptyRDB []byte

func init() {
	const b64 = "UkVESVMwMDEx+glyZWRpcy12ZXIFNy4yLjD6CnJlZGlzLWJpdHPAQPoFY3RpbWXCbQi8ZfoIdXNlZC1tZW3CsMQQAPoIYW9mLWJhc2XAAP/wbjv+wP9aog=="
	decoded, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		panic(err)
	}
	emptyRDB = decoded
}

func handlePsync(c *Context, argv []string) ([]byte, []byte) {
	reply := []byte("+FULLRESYNC " + c.Info.ReplID + " " + strconv.FormatInt(c.Info.ReplOffset(), 10) + "\r\n")
	followup := append([]byte("$"+strconv.Itoa(len(emptyRDB))+"\r\n"), emptyRDB...)
	return reply, followup
}
