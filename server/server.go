// Package server runs the local HTTP viewer: it opens the document,
// restores the persistent session and serves the marking UI until
// interrupted.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/devtamer/pdf-redactor-for-mac/cli"
	"github.com/devtamer/pdf-redactor-for-mac/pdf"
	"github.com/devtamer/pdf-redactor-for-mac/redact"
	"github.com/devtamer/pdf-redactor-for-mac/render"
	"github.com/devtamer/pdf-redactor-for-mac/routes"
	"github.com/devtamer/pdf-redactor-for-mac/store"
)

func Run(config *cli.Config, viewsFs embed.FS, staticFs embed.FS) {
	// Parse templates.
	tmpl, err := template.ParseFS(viewsFs, "templates/*.html")
	if err != nil {
		// we panic because we cannot proceed without the templates
		panic(fmt.Errorf("unable to parse templates: %v", err))
	}

	doc, err := pdf.Open(config.File)
	if err != nil {
		log.Fatalln(err)
	}

	renderer, err := render.New(config.File, config.DPI)
	if err != nil {
		log.Fatalln(err)
	}

	st, err := store.Open(store.SessionPath(config.File))
	if err != nil {
		log.Fatalln(err)
	}

	sess, err := st.LoadSession(context.Background())
	if err != nil {
		log.Fatalln(err)
	}
	if sess == nil {
		sess = redact.NewSession(config.File, doc.PageCount())
	}

	app := routes.NewApp(doc, renderer, st, sess, tmpl, config.DPI, config.MaxConcurrency)
	defer app.Close()

	// Create a new serveMux
	mux := http.NewServeMux()

	// Create a new http server to customize the timeouts.
	server := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", config.Port),
		Handler:           routes.Logger(os.Stdout)(mux),
		ReadTimeout:       time.Second * 10,
		WriteTimeout:      time.Second * 30,
		ReadHeaderTimeout: time.Second * 5,
	}

	// Connect the routes.
	routes.SetupRoutes(mux, staticFs, app)

	defer GracefulShutdown(server)

	log.Printf("Redacting %s on http://localhost:%d\n", config.File, config.Port)

	// Start the server
	err = server.ListenAndServe()
	if err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server terminated with error: %v\n", err)
		}
	}
}

// Gracefully shuts down the server. The default timeout is 10 seconds
// To wait for pending connections.
func GracefulShutdown(server *http.Server, timeout ...time.Duration) {
	var t time.Duration
	if len(timeout) > 0 {
		t = timeout[0]
	} else {
		t = 10 * time.Second
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	log.Println("waiting on os.Interrupt")

	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), t)
	defer cancel()

	log.Println("Shutting down the server")
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalln(err)
	}
	log.Println("shutting down gracefully")
}
