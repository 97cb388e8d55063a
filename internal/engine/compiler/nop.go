package compiler

import (
	"net/http"
	"time"

	"github.com/travetto/travetto-sub016/internal/core/ports"
)

type nopMetrics struct{}

func (nopMetrics) FileCompiled(ports.Outcome, time.Duration) {}
func (nopMetrics) CacheLookup(string)                        {}
func (nopMetrics) BatchFinished(string, uint64)              {}
func (nopMetrics) Handler() http.Handler                     { return http.NotFoundHandler() }
