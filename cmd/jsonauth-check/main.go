// jsonauth-check fetches an assertion for a given provider cookie and
// prints the result. Useful for verifying provider connectivity and
// cookie plumbing before pointing a forum at the bridge.
//
// Exit codes: 0 authenticated, 1 unauthenticated, 2 error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/larry-brewer/jsonauth/pkg/assertion"
	"github.com/larry-brewer/jsonauth/pkg/provider"
)

func main() {
	url := flag.String("url", "", "Assertion endpoint URL")
	cookieName := flag.String("cookie-name", "", "Provider cookie name")
	cookieValue := flag.String("cookie-value", "", "Provider cookie value to present")
	timeout := flag.Duration("timeout", provider.DefaultFetchTimeout, "Fetch timeout")
	insecure := flag.Bool("insecure", false, "Skip TLS certificate verification")
	flag.Parse()

	if *url == "" || *cookieName == "" || *cookieValue == "" {
		fmt.Fprintln(os.Stderr, "Usage: jsonauth-check -url URL -cookie-name NAME -cookie-value VALUE")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := provider.Config{
		AssertionURL:          *url,
		ProviderCookieName:    *cookieName,
		FetchTimeout:          *timeout,
		InsecureSkipTLSVerify: *insecure,
	}
	fetcher := provider.NewFetcher(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+time.Second)
	defer cancel()

	body, err := fetcher.Fetch(ctx, *cookieValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
		os.Exit(2)
	}

	a, err := assertion.Parse(body)
	if errors.Is(err, assertion.ErrUnauthenticated) {
		fmt.Println("Provider does not vouch for this cookie (authenticated: false)")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Malformed assertion: %v\n", err)
		fmt.Fprintf(os.Stderr, "Raw response: %s\n", body)
		os.Exit(2)
	}

	out, _ := json.MarshalIndent(a, "", "  ")
	fmt.Println(string(out))
}
