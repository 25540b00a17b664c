package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-managed-identity/credential"
	"github.com/jrsteele09/go-managed-identity/identity"
	"github.com/jrsteele09/go-managed-identity/internal/config"
	"github.com/jrsteele09/go-managed-identity/transport"
)

func main() {
	resource := flag.String("resource", "", "resource to acquire a credential for")
	clientID := flag.String("client-id", "", "user-assigned identity client id (optional)")
	forceRefresh := flag.Bool("force-refresh", false, "bypass any cached credential")
	flag.Parse()

	if err := run(*resource, *clientID, *forceRefresh); err != nil {
		log.Fatalf("Error acquiring credential: %s\n", err)
	}
}

func run(resource, clientID string, forceRefresh bool) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if resource == "" {
		return errors.New("-resource is required")
	}

	c := config.New()
	displayAppname(c.GetAppName())

	selector := credential.Selector{ClientID: clientID}
	if clientID == "" {
		selector.ClientID = c.GetClientID()
	}

	client, err := identity.NewClient(identity.DetectSource(c, selector), transport.NewHTTPSender())
	if err != nil {
		return fmt.Errorf("identity.NewClient: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var opts []identity.AcquireOption
	if forceRefresh {
		opts = append(opts, identity.WithForceRefresh())
	}

	result, err := client.AcquireToken(ctx, resource, opts...)
	if err != nil {
		return fmt.Errorf("AcquireToken: %w", err)
	}

	fmt.Printf("token type: %s\n", result.TokenType)
	fmt.Printf("expires on: %s\n", result.ExpiresOn.Format(time.RFC3339))
	fmt.Printf("%s\n", result.AuthorizationHeader)
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
