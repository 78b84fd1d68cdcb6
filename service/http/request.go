package http

type request struct {
	requestID string
	method    string
	url       string
	body      []byte
	clientIP  string
	path      string
}

type response struct {
	Status int         `json:"status"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data"`
}
