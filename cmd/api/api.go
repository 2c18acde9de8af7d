package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"myson/docs" // required to serve the generated swagger spec
	"myson/internal/auth"
	"myson/internal/domain/catalog"
	"myson/internal/domain/storage"
	"myson/internal/imagestore"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/speps/go-hashids/v2"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	images        *imagestore.DiskStore
	lifecycle     *catalog.ImageLifecycle
	authenticator auth.Authenticator
	codes         *hashids.HashID
}

type config struct {
	addr        string
	env         string
	apiURL      string
	frontendURL string
	db          dbConfig
	auth        authConfig
	images      imagesConfig
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret          string
	refreshSecret   string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}

type basicConfig struct {
	user string
	pass string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type imagesConfig struct {
	dir        string
	publicPath string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Set a timeout value on the request context (ctx), that will signal through
	// ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	// static image files; records store bare filenames, responses materialize URLs
	r.Handle(app.config.images.publicPath+"/*",
		http.StripPrefix(app.config.images.publicPath+"/", http.FileServer(http.Dir(app.images.Dir()))))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/authentication", func(r chi.Router) {
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})

		// Admin routes: every one of them sits behind the admin token gate.
		r.Route("/products", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.listProductsHandler)
			r.Post("/", app.createProductHandler)

			r.Route("/{productID}", func(r chi.Router) {
				r.Get("/", app.getProductHandler)
				r.Put("/", app.updateProductHandler)
				r.Delete("/", app.deleteProductHandler)
				r.Patch("/listing", app.toggleProductListingHandler)
				r.Patch("/best-seller", app.toggleProductBestSellerHandler)
				r.Patch("/trending", app.toggleProductTrendingHandler)
				r.Post("/images", app.addProductImagesHandler)
				r.Put("/images/{index}", app.replaceProductImageHandler)
				r.Delete("/images/{image}", app.deleteProductImageHandler)
			})
		})

		r.Route("/brands", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.listBrandsHandler)
			r.Post("/", app.createBrandHandler)
			r.Patch("/{brandID}", app.updateBrandHandler)
			r.Patch("/{brandID}/listing", app.toggleBrandListingHandler)
			r.Delete("/{brandID}", app.deleteBrandHandler)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.listCategoriesHandler)
			r.Post("/", app.createCategoryHandler)
			r.Patch("/{categoryID}", app.updateCategoryHandler)
			r.Patch("/{categoryID}/listing", app.toggleCategoryListingHandler)
			r.Delete("/{categoryID}", app.deleteCategoryHandler)
		})

		// Public routes: listed-only, no authentication
		r.Route("/public", func(r chi.Router) {
			r.Get("/products", app.publicProductsHandler)
			r.Get("/products/{productID}", app.publicProductDetailsHandler)
			r.Get("/brands", app.publicBrandsHandler)
			r.Get("/categories", app.publicCategoriesHandler)
			r.Get("/search", app.publicSearchHandler)
			r.Get("/featured", app.publicFeaturedHandler)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
