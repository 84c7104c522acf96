// Command healthcheck probes the bot's /healthz endpoint and exits non-zero
// when it is not healthy. It is meant for container HEALTHCHECK directives.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	if !probe(context.Background(), healthURL(os.Getenv("HEALTHCHECK_URL"), os.Getenv("HTTP_ADDR"))) {
		os.Exit(1)
	}
}

// healthURL prefers an explicit URL and otherwise targets the port from
// HTTP_ADDR on localhost.
func healthURL(explicit, addr string) string {
	if explicit != "" {
		return explicit
	}
	port := "8080"
	if i := strings.LastIndex(addr, ":"); i >= 0 && i < len(addr)-1 {
		port = addr[i+1:]
	}
	return "http://localhost:" + port + "/healthz"
}

func probe(ctx context.Context, url string) bool {
	client := &http.Client{Timeout: 3 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()
	return resp.StatusCode == http.StatusOK
}
