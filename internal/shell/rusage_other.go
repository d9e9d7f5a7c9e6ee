//go:build !unix

package shell

func maxRSS() int64 { return 0 }
