package web

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func errorsJoin(sentinel error, detail string) error {
	return errors.Join(sentinel, errors.New(detail))
}

func testutilValue(c prometheus.Collector) float64 {
	return testutil.ToFloat64(c)
}
