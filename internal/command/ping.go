package command

var pongReply = []byte("+PONG\r\n")

func handlePing(c *Context, argv []string) ([]byte, []byte) {
	return pongReply, nil
}
