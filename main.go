// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/profiler"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/suprithar2k05/qkart/api"
	"github.com/suprithar2k05/qkart/cart"
	"github.com/suprithar2k05/qkart/catalog"
	"github.com/suprithar2k05/qkart/search"
)

const (
	port         = "8080"
	cookieMaxAge = 60 * 60 * 48

	cookiePrefix    = "qkart_"
	cookieSessionID = cookiePrefix + "session-id"
)

var (
	baseUrl = ""
)

type ctxKeySessionID struct{}

type frontendServer struct {
	apiClient *api.Client

	catalog   *catalog.Store
	cartState *cart.State
	mutator   *cart.Mutator
	debouncer *search.Debouncer

	log logrus.FieldLogger
}

func main() {
	ctx := context.Background()
	log := logrus.New()
	log.Level = logrus.DebugLevel
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout

	_ = godotenv.Load()

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))

	baseUrl = os.Getenv("BASE_URL")

	if os.Getenv("ENABLE_TRACING") == "1" {
		log.Info("Tracing enabled.")
		initTracing(log, ctx)
	} else {
		log.Info("Tracing disabled.")
	}

	if os.Getenv("ENABLE_PROFILER") == "1" {
		log.Info("Profiling enabled.")
		go initProfiling(log, "storefront", "1.0.0")
	} else {
		log.Info("Profiling disabled.")
	}

	srvPort := port
	if os.Getenv("PORT") != "" {
		srvPort = os.Getenv("PORT")
	}
	addr := os.Getenv("LISTEN_ADDR")

	var apiEndpoint string
	mustMapEnv(&apiEndpoint, "API_ENDPOINT")

	debounceInterval := search.DefaultInterval
	if raw := os.Getenv("SEARCH_DEBOUNCE_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("SEARCH_DEBOUNCE_MS is not a number: %v", err)
		}
		debounceInterval = time.Duration(ms) * time.Millisecond
	}

	svc := newFrontendServer(apiEndpoint, debounceInterval, log)

	var handler http.Handler = svc.newRouter()
	handler = &logHandler{log: log, next: handler}       // add logging
	handler = ensureSessionID(handler)                   // add session ID
	handler = otelhttp.NewHandler(handler, "storefront") // add OTel tracing

	log.Infof("starting server on %s:%s", addr, srvPort)
	log.Fatal(http.ListenAndServe(addr+":"+srvPort, handler))
}

func (fe *frontendServer) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(baseUrl+"/products", fe.productsHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/search", fe.searchHandler).Methods(http.MethodGet)
	r.HandleFunc(baseUrl+"/cart", fe.viewCartHandler).Methods(http.MethodGet)
	r.HandleFunc(baseUrl+"/cart", fe.addToCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/increment", fe.incrementCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/decrement", fe.decrementCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/login", fe.loginSubmitHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/register", fe.registerSubmitHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/logout", fe.logoutHandler).Methods(http.MethodGet)
	r.HandleFunc(baseUrl+"/robots.txt", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "User-agent: *\nDisallow: /") })
	r.HandleFunc(baseUrl+"/_healthz", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "ok") })
	return r
}

// newFrontendServer wires the catalog store, cart state and search
// debouncer around a client for the remote QKart service. The
// debouncer performs its settled query against the catalog store with
// a fresh timeout since the originating request has long returned.
func newFrontendServer(apiEndpoint string, debounceInterval time.Duration, log logrus.FieldLogger) *frontendServer {
	svc := &frontendServer{
		apiClient: api.NewClient(apiEndpoint),
		cartState: cart.NewState(),
		log:       log,
	}
	svc.catalog = catalog.NewStore(svc.apiClient)
	svc.mutator = cart.NewMutator(svc.apiClient, svc.cartState)
	svc.debouncer = search.NewDebouncer(debounceInterval, func(text string) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if _, err := svc.catalog.Search(ctx, text); err != nil {
			svc.log.WithField("query", text).WithField("error", err).Warn("search failed, showing no products")
		}
	})
	return svc
}

func initTracing(log logrus.FieldLogger, ctx context.Context) (*sdktrace.TracerProvider, error) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	log.Info("Tracing provider initialized (no exporter configured)")
	return tp, nil
}

func initProfiling(log logrus.FieldLogger, service, version string) {
	for i := 1; i <= 3; i++ {
		log = log.WithField("retry", i)
		if err := profiler.Start(profiler.Config{
			Service:        service,
			ServiceVersion: version,
			// ProjectID must be set if not running on GCP.
			// ProjectID: "my-project",
		}); err != nil {
			log.Warnf("warn: failed to start profiler: %+v", err)
		} else {
			log.Info("started Stackdriver profiler")
			return
		}
		d := time.Second * 10 * time.Duration(i)
		log.Debugf("sleeping %v to retry initializing Stackdriver profiler", d)
		time.Sleep(d)
	}
	log.Warn("warning: could not initialize Stackdriver profiler after retrying, giving up")
}

func mustMapEnv(target *string, envKey string) {
	v := os.Getenv(envKey)
	if v == "" {
		panic(fmt.Sprintf("environment variable %q not set", envKey))
	}
	*target = v
}
