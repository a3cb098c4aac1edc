package command

import "strconv"

func handleInfo(c *Context, argv []string) ([]byte, []byte) {
	body := "role:" + c.Info.Role.String() + "\r\n" +
		"master_replid:" + c.Info.ReplID + "\r\n" +
		"master_repl_offset:" + strconv.FormatInt(c.Info.ReplOffset(), 10) + "\r\n"
	return bulkString(body), nil
}
