/******************************************************************************
 *
 *  Description :
 *
 *  Web server initialization and shutdown.
 *
 *****************************************************************************/

package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/gorilla/handlers"
	"golang.org/x/crypto/acme/autocert"
)

// Time allowed for in-flight requests to complete on shutdown.
const shutdownTimeout = 5 * time.Second

type tlsConfig struct {
	// Flag enabling TLS
	Enabled bool `json:"enabled"`
	// Listen on port 80 and redirect plain HTTP to HTTPS
	RedirectHTTP string `json:"http_redirect"`
	// Enable Strict-Transport-Security by setting max_age > 0
	StrictMaxAge int `json:"strict_max_age"`
	// ACME autocert config, e.g. letsencrypt.org
	Autocert *tlsAutocertConfig `json:"autocert"`
	// If Autocert is not defined, provide file names of static certificate and key
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`
}

type tlsAutocertConfig struct {
	// Domains to support by autocert
	Domains []string `json:"domains"`
	// Name of directory where auto-certificates are cached, e.g. /etc/letsencrypt/live/your-domain-here
	CertCache string `json:"cache"`
	// Contact email for letsencrypt
	Email string `json:"email"`
}

func parseTLSConfig(tlsEnabled bool, jsconfig json.RawMessage) (*tls.Config, *tlsConfig, error) {
	var config tlsConfig

	if jsconfig != nil {
		if err := json.Unmarshal(jsconfig, &config); err != nil {
			return nil, nil, errors.New("http: failed to parse tls_config: " + err.Error() + "(" + string(jsconfig) + ")")
		}
	}

	if !tlsEnabled && !config.Enabled {
		return nil, &config, nil
	}

	if config.StrictMaxAge > 0 {
		globals.tlsStrictMaxAge = strconv.Itoa(config.StrictMaxAge)
	}

	if config.Autocert != nil {
		certManager := autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(config.Autocert.Domains...),
			Cache:      autocert.DirCache(config.Autocert.CertCache),
			Email:      config.Autocert.Email,
		}
		if config.CertFile != "" || config.KeyFile != "" {
			logs.Warn.Println("http: using autocert, static cert and key files are ignored")
			config.CertFile = ""
			config.KeyFile = ""
		}
		return certManager.TLSConfig(), &config, nil
	}

	if config.CertFile == "" || config.KeyFile == "" {
		return nil, nil, errors.New("http: missing certificate or key file names")
	}

	cert, err := tls.LoadX509KeyPair(config.CertFile, config.KeyFile)
	if err != nil {
		return nil, nil, err
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}, &config, nil
}

// wrapHandler adds the common middleware to the API handler.
func wrapHandler(handler http.Handler, useXForwardedFor bool) http.Handler {
	handler = handlers.CompressHandler(handler)
	handler = handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete,
			http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(handler)
	if useXForwardedFor {
		handler = handlers.ProxyHeaders(handler)
	}
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(logs.Err), handlers.PrintRecoveryStack(true))(handler)
	return handlers.CombinedLoggingHandler(logs.Info.Writer(), handler)
}

func listenAndServe(addr string, handler http.Handler, tlsEnabled bool, jsconfig json.RawMessage, stop <-chan bool) error {
	tlsConf, tlsParams, err := parseTLSConfig(tlsEnabled, jsconfig)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         tlsConf,
	}
	httpdone := make(chan error, 1)

	go func() {
		var err error
		if server.TLSConfig != nil {
			// If port is not specified, use default https port (443),
			// otherwise it will default to 80
			if server.Addr == "" {
				server.Addr = ":https"
			}

			if tlsParams.RedirectHTTP != "" {
				logs.Info.Printf("Redirecting connections from HTTP at [%s] to HTTPS at [%s]",
					tlsParams.RedirectHTTP, server.Addr)

				// This is a second HTTP server listenning on a different port.
				go func() {
					if err := http.ListenAndServe(tlsParams.RedirectHTTP, tlsRedirect(addr)); err != nil &&
						err != http.ErrServerClosed {
						logs.Info.Println("HTTP redirect failed:", err)
					}
				}()
			}

			logs.Info.Printf("Listening for client HTTPS connections on [%s]", server.Addr)
			err = server.ListenAndServeTLS(tlsParams.CertFile, tlsParams.KeyFile)
		} else {
			logs.Info.Printf("Listening for client HTTP connections on [%s]", server.Addr)
			err = server.ListenAndServe()
		}
		httpdone <- err
	}()

	// Wait for either a termination signal or an error
	select {
	case <-stop:
		// Close the listening socket and wait for in-flight requests.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := server.Shutdown(ctx)
		cancel()
		if err != nil {
			logs.Warn.Println("HTTP server: graceful shutdown failed", err)
		}

		if err := <-httpdone; err != nil && err != http.ErrServerClosed {
			logs.Err.Println("HTTP server: failed", err)
		} else {
			logs.Info.Println("HTTP server: stopped")
		}

		shutdownServices()
		return nil

	case err := <-httpdone:
		shutdownServices()
		return err
	}
}

// Stops the services in dependency order: sessions first so no new subscriptions
// arrive, then the hub, then the pipeline which may still be repairing the channel index.
func shutdownServices() {
	if globals.sessionStore != nil {
		globals.sessionStore.Shutdown()
	}
	if globals.hub != nil {
		globals.hub.shutdown()
	}
	if globals.pipeline != nil {
		globals.pipeline.Shutdown()
	}
	if err := store.Store.Close(); err != nil {
		logs.Warn.Println("Failed to close database connection(s)", err)
	} else {
		logs.Info.Println("Closed database connection(s)")
	}
}

func signalHandler() <-chan bool {
	stop := make(chan bool)

	signchan := make(chan os.Signal, 1)
	signal.Notify(signchan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		// Wait for a signal. Don't care which signal it is
		sig := <-signchan
		logs.Info.Printf("Signal received: '%s', shutting down", sig)
		stop <- true
	}()

	return stop
}

// Wrapper for http.Handler which adds a Strict-Transport-Security to the response if enabled.
func hstsHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if globals.tlsStrictMaxAge != "" {
			w.Header().Set("Strict-Transport-Security", "max-age="+globals.tlsStrictMaxAge)
		}
		handler.ServeHTTP(w, r)
	})
}

// Wrapper for http.Handler which optionally adds a Cache-Control header to the response
func cacheControlHandler(maxAge int, handler http.Handler) http.Handler {
	if maxAge <= 0 {
		return handler
	}
	value := "must-revalidate, public, max-age=" + strconv.Itoa(maxAge)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", value)
		handler.ServeHTTP(w, r)
	})
}

func serve404(wrt http.ResponseWriter, req *http.Request) {
	writeCtrl(wrt, ErrNotFound("", "", types.TimeNow()))
}

func serve405(wrt http.ResponseWriter, req *http.Request) {
	writeCtrl(wrt, ErrOperationNotAllowed("", "", types.TimeNow()))
}

// Redirect HTTP requests to HTTPS
func tlsRedirect(toPort string) http.HandlerFunc {
	if toPort == ":443" || toPort == ":https" {
		toPort = ""
	} else if toPort != "" && toPort[:1] == ":" {
		// Strip leading colon. JoinHostPort will add it back.
		toPort = toPort[1:]
	}

	return func(wrt http.ResponseWriter, req *http.Request) {
		host := req.Host
		if idx := strings.LastIndexByte(host, ':'); idx > 0 && !strings.HasSuffix(host, "]") {
			host = host[:idx]
		}
		target := "https://" + host
		if toPort != "" {
			target += ":" + toPort
		}
		target += req.URL.Path
		if req.URL.RawQuery != "" {
			target += "?" + req.URL.RawQuery
		}
		http.Redirect(wrt, req, target, http.StatusTemporaryRedirect)
	}
}
