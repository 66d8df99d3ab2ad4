package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sendgrid/rest"
)

func main() {
	baseURL := flag.String("base", "http://localhost:5000/api", "The API base URL.")
	timeout := flag.Duration("timeout", 10*time.Second, "The timeout of each request.")
	flag.Parse()

	v := verifier{
		client:  &rest.Client{HTTPClient: &http.Client{Timeout: *timeout}},
		baseURL: *baseURL,
		out:     os.Stdout,
	}
	if err := v.run(); err != nil {
		fmt.Fprintf(os.Stderr, "verification failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}
