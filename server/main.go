/******************************************************************************
 *
 *  Copyright (C) 2014 Tinode, All Rights Reserved
 *
 *  This program is free software; you can redistribute it and/or modify it
 *  under the terms of the GNU Affero General Public License as published by
 *  the Free Software Foundation; either version 3 of the License, or (at your
 *  option) any later version.
 *
 *  This program is distributed in the hope that it will be useful, but
 *  WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY
 *  or FITNESS FOR A PARTICULAR PURPOSE.
 *  See the GNU Affero General Public License for more details.
 *
 *  You should have received a copy of the GNU Affero General Public License
 *  along with this program; if not, see <http://www.gnu.org/licenses>.
 *
 *  This code is available under licenses for commercial use.
 *
 *  File        :  main.go
 *
 ******************************************************************************
 *
 *  Description :
 *
 *  Setup & initialization.
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/auth"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/perms"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	"github.com/gorilla/handlers"
	jcr "github.com/tinode/jsonco"

	// Token authenticator.
	_ "github.com/Divyanshu-Mishra9620/DiscordClone/server/auth/token"

	// Database backends
	_ "github.com/Divyanshu-Mishra9620/DiscordClone/server/db/memory"
	_ "github.com/Divyanshu-Mishra9620/DiscordClone/server/db/mongodb"
	_ "github.com/Divyanshu-Mishra9620/DiscordClone/server/db/mysql"
	_ "github.com/Divyanshu-Mishra9620/DiscordClone/server/db/postgres"

	// Permission oracles
	_ "github.com/Divyanshu-Mishra9620/DiscordClone/server/perms/db"
	_ "github.com/Divyanshu-Mishra9620/DiscordClone/server/perms/rest"
)

const (
	// currentVersion is the current API/protocol version
	currentVersion = "0.1"

	// Default API path prefix.
	defaultApiPath = "/v1"

	// Default metrics path.
	defaultStatsPath = "/metrics"

	// Default oracle of permissions.
	defaultOracle = "db"
)

// Build version number defined by the compiler:
//
//	-ldflags "-X main.buildstamp=value_to_assign_to_buildstamp"
//
// For instance, to define the buildstamp as a timestamp of when the server was built add a
// flag to compiler command line:
//
//	-ldflags "-X main.buildstamp=`date -u '+%Y%m%dT%H:%M:%SZ'`"
var buildstamp = "undef"

// Server-wide singletons.
var globals struct {
	hub          *Hub
	sessionStore *SessionStore
	pipeline     *Pipeline

	// Add Strict-Transport-Security to headers, the value signifies age.
	// Empty string "" turns it off
	tlsStrictMaxAge string
}

// Contents of the configuration file
type configType struct {
	// HTTP(S) address:port to listen on for websocket and REST clients. Could be
	// blank: default is ":8080".
	Listen string `json:"listen"`
	// URL path prefix of the API, "/v1" by default.
	ApiPath string `json:"api_path"`
	// Cache-Control value for static content.
	CacheControl int `json:"cache_control"`
	// Take IP address of the client from HTTP header 'X-Forwarded-For'.
	// Useful when the server is behind a reverse proxy.
	UseXForwardedFor bool `json:"use_x_forwarded_for"`

	// Message pipeline.
	MaxMessageLength int `json:"max_message_length"`
	ReactionRetries  int `json:"reaction_retries"`
	IndexRetries     int `json:"index_retries"`
	RepairWorkers    int `json:"repair_workers"`
	RepairBacklog    int `json:"repair_backlog"`

	// Number of hub run loops and the size of the event queue of each one.
	HubShards     int `json:"hub_shards"`
	FeedQueueSize int `json:"feed_queue_size"`

	// URL path for exposing metrics in Prometheus format. "-" disables it.
	StatsPath string `json:"stats_path"`

	// Per-actor limit on REST requests.
	RateLimit *rateLimitConfig `json:"rate_limit"`

	// Configs for subsystems
	TLS         json.RawMessage            `json:"tls"`
	StoreConfig json.RawMessage            `json:"store_config"`
	AuthConfig  map[string]json.RawMessage `json:"auth_config"`
	PermsConfig map[string]json.RawMessage `json:"perms_config"`
}

func main() {
	executable, _ := os.Executable()

	// All relative paths are resolved against the executable path, not against current working directory.
	// Absolute paths are left unchanged.
	rootpath, _ := filepath.Split(executable)

	logs.Init(os.Stderr, "stdFlags")

	logs.Info.Printf("Server v%s:%s:%s; pid %d; %d process(es)",
		currentVersion, executable, buildstamp,
		os.Getpid(), runtime.GOMAXPROCS(runtime.NumCPU()))

	var configfile = flag.String("config", "chat.conf", "Path to config file.")
	// Path to static content.
	var staticPath = flag.String("static_data", "", "File path to directory with static files to be served.")
	var listenOn = flag.String("listen", "", "Override address and port to listen on for HTTP(S) clients.")
	var logFlags = flag.String("log_flags", "stdFlags",
		"Comma-separated list of log flags (as defined in https://golang.org/pkg/log/#pkg-constants without the L prefix)")
	var pprofFile = flag.String("pprof", "", "File name to save profiling info to. Disabled if not set.")
	var pprofUrl = flag.String("pprof_url", "", "Debugging only! URL path for exposing profiling info. Disabled if not set.")
	flag.Parse()

	logs.Init(os.Stderr, *logFlags)

	*configfile = toAbsolutePath(rootpath, *configfile)
	logs.Info.Printf("Using config from '%s'", *configfile)

	var config configType
	if file, err := os.Open(*configfile); err != nil {
		logs.Err.Fatal("Failed to read config file: ", err)
	} else {
		jr := jcr.New(file)
		if err = json.NewDecoder(jr).Decode(&config); err != nil {
			switch jerr := err.(type) {
			case *json.UnmarshalTypeError:
				lnum, cnum, _ := jr.LineAndChar(jerr.Offset)
				logs.Err.Fatalf("Unmarshall error in config file in %s at %d:%d (offset %d bytes): %s",
					jerr.Field, lnum, cnum, jerr.Offset, jerr.Error())
			case *json.SyntaxError:
				lnum, cnum, _ := jr.LineAndChar(jerr.Offset)
				logs.Err.Fatalf("Syntax error in config file at %d:%d (offset %d bytes): %s",
					lnum, cnum, jerr.Offset, jerr.Error())
			default:
				logs.Err.Fatal("Failed to parse config file: ", err)
			}
		}
		file.Close()
	}

	if *listenOn != "" {
		config.Listen = *listenOn
	}
	if config.Listen == "" {
		config.Listen = ":8080"
	}

	// Set up HTTP server.
	mux := http.NewServeMux()

	// Exposing values for statistics and monitoring.
	if config.StatsPath == "" {
		config.StatsPath = defaultStatsPath
	}

	// Initialize serving debug profiles (optional).
	servePprof(mux, *pprofUrl)

	if *pprofFile != "" {
		*pprofFile = toAbsolutePath(rootpath, *pprofFile)

		cpuf, err := os.Create(*pprofFile + ".cpu")
		if err != nil {
			logs.Err.Fatal("Failed to create CPU pprof file: ", err)
		}
		defer cpuf.Close()

		memf, err := os.Create(*pprofFile + ".mem")
		if err != nil {
			logs.Err.Fatal("Failed to create Mem pprof file: ", err)
		}
		defer memf.Close()

		pprof.StartCPUProfile(cpuf)
		defer pprof.StopCPUProfile()
		defer pprof.WriteHeapProfile(memf)

		logs.Info.Printf("Profiling info saved to '%s.(cpu|mem)'", *pprofFile)
	}

	// Open database
	err := store.Store.Open(1, config.StoreConfig)
	logs.Info.Println("DB adapter", store.Store.GetAdapterName(), store.Store.GetAdapterVersion())
	if err != nil {
		logs.Err.Fatal("Failed to connect to DB: ", err)
	}

	// Authenticator of actors
	authn := auth.GetHandler("token")
	if authn == nil {
		logs.Err.Fatal("Token authenticator is not available in this binary")
	}
	if err = authn.Init(config.AuthConfig["token"], "token"); err != nil {
		logs.Err.Fatal("Failed to initialize token authenticator: ", err)
	}

	// Oracle of permissions
	oracleName := defaultOracle
	if raw, ok := config.PermsConfig["use"]; ok {
		if err = json.Unmarshal(raw, &oracleName); err != nil {
			logs.Err.Fatal("Invalid perms_config.use: ", err)
		}
	}
	oracle := perms.GetOracle(oracleName)
	if oracle == nil {
		logs.Err.Fatalf("Permission oracle '%s' is not available, use one of %v", oracleName, perms.Oracles())
	}
	if err = oracle.Init(config.PermsConfig[oracleName], oracleName); err != nil {
		logs.Err.Fatal("Failed to initialize permission oracle: ", err)
	}

	globals.hub = newHub(config.HubShards, config.FeedQueueSize)
	globals.sessionStore = NewSessionStore()
	globals.pipeline = NewPipeline(store.Messages, store.Channels, oracle, globals.hub, &PipelineConfig{
		MaxMessageLength: config.MaxMessageLength,
		ReactionRetries:  config.ReactionRetries,
		IndexRetries:     config.IndexRetries,
		RepairWorkers:    config.RepairWorkers,
		RepairBacklog:    config.RepairBacklog,
	})

	statsInit(mux, config.StatsPath, globals.pipeline.RepairBacklog)

	// Serve static content from the directory in -static_data flag if that's
	// available, otherwise assume '<path-to-executable>/static'. The content is served at
	// the root of the URL path.
	if *staticPath != "-" {
		if *staticPath == "" {
			*staticPath = filepath.Join(rootpath, "static")
		} else {
			*staticPath = toAbsolutePath(rootpath, *staticPath)
		}
		mux.Handle("/x/", http.StripPrefix("/x/",
			cacheControlHandler(config.CacheControl, http.FileServer(http.Dir(*staticPath)))))
		logs.Info.Printf("Serving static content from '%s' at '/x/'", *staticPath)
	} else {
		logs.Info.Println("Static content is disabled")
	}

	apiPath := config.ApiPath
	if apiPath == "" {
		apiPath = defaultApiPath
	}
	apiPath = "/" + strings.Trim(apiPath, "/")

	// Websocket feeds. Not compressed: the connection is hijacked.
	mux.Handle(apiPath+"/feeds", handlers.CombinedLoggingHandler(logs.Info.Writer(),
		serveWebSocket(globals.hub, globals.sessionStore, authn, config.UseXForwardedFor)))
	logs.Info.Printf("Listening for websocket connections at '%s/feeds'", apiPath)

	// REST API.
	mux.Handle(apiPath+"/", wrapHandler(newRestRouter(apiPath, &restApi{
		pipeline: globals.pipeline,
		authn:    authn,
		limiter:  newRateLimiter(config.RateLimit),
	}), config.UseXForwardedFor))
	logs.Info.Printf("Serving REST API at '%s/'", apiPath)

	// Handle 404 for everything else.
	mux.HandleFunc("/", serve404)

	if err = listenAndServe(config.Listen, hstsHandler(mux), false, config.TLS, signalHandler()); err != nil {
		logs.Err.Fatal(err)
	}
}

// Convert relative filesystem path to an absolute path
// relative to the current path.
func toAbsolutePath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(base, path))
}
