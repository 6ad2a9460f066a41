package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResolvesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_resolves_total",
		Help: "Total number of metadata resolution attempts",
	})

	ResolvesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_resolves_failed_total",
		Help: "Total number of failed metadata resolutions",
	})

	DownloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_downloads_total",
		Help: "Total number of download attempt sequences",
	})

	DownloadsSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_downloads_success_total",
		Help: "Total number of successful downloads",
	})

	DownloadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_downloads_failed_total",
		Help: "Total number of failed downloads",
	})

	RetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_retries_total",
		Help: "Total number of retried backend operations",
	})

	DownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ytfetch_download_duration_seconds",
		Help:    "Download duration in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	DownloadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_download_bytes_total",
		Help: "Total bytes downloaded",
	})
)
