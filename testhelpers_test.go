package gaffa

import "github.com/fgenesis/gaffa/internal/rtlog"

func discardLogger() rtlog.Logger { return rtlog.Discard() }

func newTestRuntime(t interface{ Fatal(...interface{}) }) *Runtime {
	rt, err := NewRuntime()
	if err != nil {
		t.Fatal(err)
	}
	return rt
}
