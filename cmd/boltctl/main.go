/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command boltctl is a thin flag-driven smoke client for the driver
// core: it opens either a direct (bolt://) or routed (neo4j://) session
// against a server, runs one query, and prints the resulting records and
// summary. It is not a fluent driver API — see spec.md §1's Non-goals —
// only a wiring example and a manual end-to-end check for components
// A-J.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nabbar/bolt-driver/address"
	"github.com/nabbar/bolt-driver/bolt"
	"github.com/nabbar/bolt-driver/certificates"
	"github.com/nabbar/bolt-driver/config"
	"github.com/nabbar/bolt-driver/logging"
	"github.com/nabbar/bolt-driver/pool"
	"github.com/nabbar/bolt-driver/retry"
	"github.com/nabbar/bolt-driver/routing"
	"github.com/nabbar/bolt-driver/session"
	"github.com/nabbar/bolt-driver/transaction"
)

func main() {
	var (
		url        = flag.String("url", "bolt://127.0.0.1:7687", "bolt:// or neo4j:// URL, optionally +s/+ssc")
		user       = flag.String("user", "neo4j", "basic auth principal")
		password   = flag.String("password", "", "basic auth credentials")
		database   = flag.String("database", "", "database name, empty for the server default")
		query      = flag.String("query", "RETURN 1 AS n", "Cypher text to run")
		write      = flag.Bool("write", false, "run the query as a WRITE transaction with the retry executor")
		configFile = flag.String("config", "", "optional TOML/YAML file overriding driver defaults (see config.LoadFile)")
		leastConn  = flag.Bool("least-connected", false, "use the least-connected routing strategy instead of round-robin")
		logLevel   = flag.String("log-level", "info", "logging.SetLevel value")
	)
	flag.Parse()

	if err := logging.SetLevel(*logLevel); err != nil {
		fatalf("invalid -log-level: %v", err)
	}
	log := logging.New()

	cfg := config.New("boltctl/1.0")
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	scheme, hostport, err := splitURL(*url)
	if err != nil {
		fatalf("parsing -url: %v", err)
	}

	initial, err := address.Parse(hostport, "localhost", 7687)
	if err != nil {
		fatalf("parsing address: %v", err)
	}

	auth := bolt.BasicAuth(*user, *password, "")
	dialOpts := dialOptionsFor(scheme, cfg, auth, log)

	dialer := func(ctx context.Context, addr address.Address, authTok bolt.AuthToken) (*bolt.Connection, error) {
		opt := dialOpts
		opt.Auth = authTok
		return bolt.Dial(ctx, addr.Host, addr.Port, opt)
	}

	p := pool.New(dialer, cfg.MaxConnectionPoolSize, cfg.MaxConnectionLifetime.Time())
	defer func() { _ = p.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectionAcquisitionTimeout.Time()+cfg.ConnectionTimeout.Time())
	defer cancel()

	var source session.ConnectionSource
	if strings.HasPrefix(scheme, "neo4j") {
		strategy := routing.NewRoundRobin()
		if *leastConn {
			strategy = routing.NewLeastConnected()
		}
		source = routing.NewRouter(ctx, []address.Address{initial}, p, auth, cfg.RoutingContext, strategy, log)
	} else {
		source = session.NewDirectSource(p, initial, auth)
	}

	sess := session.New(source, session.Options{
		Database:                        *database,
		FetchSize:                       cfg.FetchSize,
		NotificationsMinSeverity:        cfg.NotificationsMinSeverity,
		NotificationsDisabledCategories: cfg.NotificationsDisabledCategories,
		AcquireTimeout:                  cfg.ConnectionAcquisitionTimeout.Time(),
	})
	defer func() { _ = sess.Close(context.Background()) }()

	mode := routing.Read
	if *write {
		mode = routing.Write
	}

	if *write {
		runWithRetry(ctx, cfg, sess, *query)
		return
	}
	runOnce(ctx, sess, mode, *query)
}

// dialOptionsFor builds the bolt.Options common to every Dial call,
// wiring +s/+ssc into certificates.TLSConfig per spec.md §6/§4.D step 3.
func dialOptionsFor(scheme string, cfg *config.Config, auth bolt.AuthToken, log logging.Logger) bolt.Options {
	opt := bolt.Options{
		ConnectTimeout: cfg.ConnectionTimeout.Time(),
		KeepAlive:      0,
		Auth:           auth,
		UserAgent:      cfg.UserAgent,
		RoutingContext: cfg.RoutingContext,
		Logger:         log,
	}
	if cfg.KeepAlive {
		opt.KeepAlive = 30 * time.Second
	}

	switch {
	case strings.HasSuffix(scheme, "+ssc"):
		tc := certificates.New()
		opt.TLS = tc
		opt.TrustAny = true
	case strings.HasSuffix(scheme, "+s"):
		tc := certificates.New()
		for _, ca := range cfg.TrustedCertificates {
			_ = tc.AddRootCAFile(ca)
		}
		opt.TLS = tc
	}

	return opt
}

// splitURL separates a bolt://, bolt+s://, bolt+ssc://, neo4j://,
// neo4j+s:// or neo4j+ssc:// URL into its scheme and host:port part.
// Query-string routing context is intentionally not parsed here: URL
// parsing is an out-of-scope collaborator per spec.md §1, and boltctl
// only needs the scheme and authority to pick a ConnectionSource.
func splitURL(raw string) (scheme, hostport string, err error) {
	s, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "", "", fmt.Errorf("boltctl: %q is missing a scheme", raw)
	}
	rest = strings.SplitN(rest, "/", 2)[0]
	rest = strings.SplitN(rest, "?", 2)[0]
	return s, rest, nil
}

func runOnce(ctx context.Context, sess *session.Session, mode routing.AccessMode, query string) {
	res, err := sess.Run(ctx, mode, query, nil)
	if err != nil {
		fatalf("run: %v", err)
	}
	printResult(res)
}

func runWithRetry(ctx context.Context, cfg *config.Config, sess *session.Session, query string) {
	exec := retry.FromConfig(cfg)
	result, err := exec.ExecuteWrite(ctx, sess, func(tx *transaction.Transaction) (any, error) {
		res, err := tx.Run(query, nil)
		if err != nil {
			return nil, err
		}
		if err := res.Detach(); err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		fatalf("run (retried write): %v", err)
	}
	printResult(result.(*transaction.Result))
}

func printResult(res *transaction.Result) {
	fmt.Println(strings.Join(res.Keys(), "\t"))
	for {
		rec, ok, err := res.Next()
		if err != nil {
			fatalf("reading record: %v", err)
		}
		if !ok {
			break
		}
		fields := make([]string, len(rec))
		for i, v := range rec {
			fields[i] = fmt.Sprintf("%v", v)
		}
		fmt.Println(strings.Join(fields, "\t"))
	}

	summary, err := res.Consume()
	if err != nil {
		fatalf("consuming summary: %v", err)
	}
	fmt.Fprintf(os.Stderr, "available_after=%s consumed_after=%s updates=%v\n",
		summary.ResultAvailableAfter, summary.ResultConsumedAfter, summary.ContainsUpdates)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "boltctl: "+format+"\n", args...)
	os.Exit(1)
}
