package engine

import "encoding/base64"

func encodeBodyB64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
