package tracing

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"contrib.go.opencensus.io/exporter/aws"
	"contrib.go.opencensus.io/exporter/jaeger"
	"contrib.go.opencensus.io/exporter/prometheus"
	"contrib.go.opencensus.io/exporter/stackdriver"
	"contrib.go.opencensus.io/exporter/zipkin"
	"contrib.go.opencensus.io/integrations/ocsql"
	datadog "github.com/DataDog/opencensus-go-exporter-datadog"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/encanta/encanta/config"
	"github.com/encanta/encanta/pkg/logger"
)

// Telemetry holds what the exporters expose to the rest of the process
type Telemetry struct {
	// MetricsHandler serves the Prometheus scrape endpoint, nil unless the
	// prometheus metrics exporter is enabled
	MetricsHandler http.Handler
}

type initializer struct {
	cfg       *config.TracingConfig
	env       string
	logger    logger.Logger
	telemetry *Telemetry
}

// InitTracing configures OpenCensus sampling, trace exporters and metrics
// exporters. It is a no-op when tracing is disabled.
// codecov:ignore:start
func InitTracing(cfg *config.TracingConfig, environment string, log logger.Logger) (*Telemetry, error) {
	telemetry := &Telemetry{}
	if !cfg.Enabled {
		return telemetry, nil
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler: trace.ProbabilitySampler(cfg.SamplingProbability),
	})

	in := &initializer{cfg: cfg, env: environment, logger: log, telemetry: telemetry}

	if err := in.initTraceExporter(); err != nil {
		return nil, err
	}
	if err := in.initMetricsExporters(); err != nil {
		return nil, err
	}

	if err := RegisterHTTPServerViews(); err != nil {
		return nil, fmt.Errorf("failed to register HTTP server views: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"trace_exporter":   cfg.TraceExporter,
		"metrics_exporter": cfg.MetricsExporter,
	}).Info("OpenCensus initialized")
	return telemetry, nil
}

// codecov:ignore:end

func (in *initializer) envTag() string {
	if in.env == "" {
		return "env:production"
	}
	return "env:" + in.env
}

func (in *initializer) initTraceExporter() error {
	switch in.cfg.TraceExporter {
	case "jaeger":
		return in.initJaegerExporter()
	case "zipkin":
		return in.initZipkinExporter()
	case "stackdriver":
		return in.initStackdriverTraceExporter()
	case "datadog":
		return in.initDatadogTraceExporter()
	case "xray":
		return in.initXRayExporter()
	case "none", "":
		in.logger.Debug("No trace exporter configured")
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", in.cfg.TraceExporter)
	}
}

// initMetricsExporters accepts a comma separated list of exporters
func (in *initializer) initMetricsExporters() error {
	if in.cfg.MetricsExporter == "none" || in.cfg.MetricsExporter == "" {
		in.logger.Debug("No metrics exporter configured")
		return nil
	}

	for _, exporter := range strings.Split(in.cfg.MetricsExporter, ",") {
		exporter = strings.TrimSpace(exporter)
		if exporter == "" {
			continue
		}

		var err error
		switch exporter {
		case "prometheus":
			err = in.initPrometheusExporter()
		case "stackdriver":
			err = in.initStackdriverMetricsExporter()
		case "datadog":
			err = in.initDatadogMetricsExporter()
		default:
			return fmt.Errorf("unsupported metrics exporter: %s", exporter)
		}
		if err != nil {
			return fmt.Errorf("failed to initialize %s metrics exporter: %w", exporter, err)
		}
	}

	if err := view.Register(ocsql.DefaultViews...); err != nil {
		return fmt.Errorf("failed to register database views: %w", err)
	}
	return nil
}

func (in *initializer) initJaegerExporter() error {
	if in.cfg.JaegerEndpoint == "" {
		return fmt.Errorf("jaeger endpoint is required for jaeger exporter")
	}

	je, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: in.cfg.JaegerEndpoint,
		ServiceName:       in.cfg.ServiceName,
		Process: jaeger.Process{
			ServiceName: in.cfg.ServiceName,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create jaeger exporter: %w", err)
	}

	trace.RegisterExporter(je)
	in.logger.WithField("endpoint", in.cfg.JaegerEndpoint).Info("Jaeger exporter initialized")
	return nil
}

func (in *initializer) initZipkinExporter() error {
	if in.cfg.ZipkinEndpoint == "" {
		return fmt.Errorf("zipkin endpoint is required for zipkin exporter")
	}

	reporter := zipkinhttp.NewReporter(in.cfg.ZipkinEndpoint)
	trace.RegisterExporter(zipkin.NewExporter(reporter, nil))
	in.logger.WithField("endpoint", in.cfg.ZipkinEndpoint).Info("Zipkin exporter initialized")
	return nil
}

func (in *initializer) initStackdriverTraceExporter() error {
	if in.cfg.StackdriverProjectID == "" {
		return fmt.Errorf("stackdriver project ID is required for stackdriver exporter")
	}

	se, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID: in.cfg.StackdriverProjectID,
	})
	if err != nil {
		return fmt.Errorf("failed to create stackdriver exporter: %w", err)
	}

	trace.RegisterExporter(se)
	in.logger.WithField("project_id", in.cfg.StackdriverProjectID).Info("Stackdriver trace exporter initialized")
	return nil
}

func (in *initializer) datadogAgent() (string, error) {
	agentAddr := in.cfg.DatadogAgentAddress
	if agentAddr == "" {
		agentAddr = in.cfg.AgentEndpoint
	}
	if agentAddr == "" {
		return "", fmt.Errorf("datadog agent address is required for datadog exporter")
	}
	return agentAddr, nil
}

func (in *initializer) initDatadogTraceExporter() error {
	agentAddr, err := in.datadogAgent()
	if err != nil {
		return err
	}

	exporter, err := datadog.NewExporter(datadog.Options{
		Service:   in.cfg.ServiceName,
		TraceAddr: agentAddr,
		StatsAddr: agentAddr,
		Tags:      []string{in.envTag()},
	})
	if err != nil {
		return fmt.Errorf("failed to create datadog exporter: %w", err)
	}

	trace.RegisterExporter(exporter)
	in.logger.WithField("agent", agentAddr).Info("Datadog trace exporter initialized")
	return nil
}

func (in *initializer) initXRayExporter() error {
	if in.cfg.XRayRegion == "" {
		return fmt.Errorf("AWS region is required for X-Ray exporter")
	}

	exporter, err := aws.NewExporter(
		aws.WithRegion(in.cfg.XRayRegion),
		aws.WithVersion("latest"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AWS X-Ray exporter: %w", err)
	}

	trace.RegisterExporter(exporter)
	in.logger.WithField("region", in.cfg.XRayRegion).Info("AWS X-Ray exporter initialized")
	return nil
}

// initPrometheusExporter registers the exporter and exposes its handler; the
// app serves it on the configured metrics port
func (in *initializer) initPrometheusExporter() error {
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: strings.ReplaceAll(in.cfg.ServiceName, "-", "_"),
		OnError: func(err error) {
			in.logger.WithField("error", err.Error()).Warn("Prometheus exporter error")
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	view.RegisterExporter(pe)
	in.telemetry.MetricsHandler = pe
	return nil
}

func (in *initializer) initStackdriverMetricsExporter() error {
	if in.cfg.StackdriverProjectID == "" {
		return fmt.Errorf("stackdriver project ID is required for stackdriver metrics exporter")
	}

	se, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    in.cfg.StackdriverProjectID,
		MetricPrefix: in.cfg.ServiceName,
		OnError: func(err error) {
			in.logger.WithField("error", err.Error()).Warn("Stackdriver metrics exporter error")
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create stackdriver metrics exporter: %w", err)
	}

	view.RegisterExporter(se)
	return nil
}

func (in *initializer) initDatadogMetricsExporter() error {
	agentAddr, err := in.datadogAgent()
	if err != nil {
		return err
	}

	options := datadog.Options{
		Service:   in.cfg.ServiceName,
		TraceAddr: agentAddr,
		StatsAddr: agentAddr,
		Tags:      []string{in.envTag()},
		OnError: func(err error) {
			in.logger.WithField("error", err.Error()).Warn("Datadog metrics exporter error")
		},
	}
	if in.cfg.DatadogAPIKey != "" {
		options.GlobalTags = map[string]interface{}{
			"api_key": in.cfg.DatadogAPIKey,
		}
	}

	exporter, err := datadog.NewExporter(options)
	if err != nil {
		return fmt.Errorf("failed to create datadog metrics exporter: %w", err)
	}

	view.RegisterExporter(exporter)
	return nil
}

// HTTPTransport returns an ochttp transport naming client spans "METHOD host/path"
func HTTPTransport(base http.RoundTripper) *ochttp.Transport {
	return &ochttp.Transport{
		Base: base,
		FormatSpanName: func(req *http.Request) string {
			return fmt.Sprintf("%s %s%s", req.Method, req.URL.Host, req.URL.Path)
		},
	}
}

// RegisterHTTPServerViews registers views for HTTP server metrics
func RegisterHTTPServerViews() error {
	return view.Register(
		ochttp.ServerRequestCountView,
		ochttp.ServerRequestBytesView,
		ochttp.ServerResponseBytesView,
		ochttp.ServerLatencyView,
		ochttp.ServerRequestCountByMethod,
		ochttp.ServerResponseCountByStatusCode,
	)
}

// StartSpan starts a new span with the given name and returns a context with the span
func StartSpan(ctx context.Context, name string) (context.Context, *trace.Span) {
	return trace.StartSpan(ctx, name)
}
