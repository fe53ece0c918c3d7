package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/medsign/internal/api"
	"github.com/JaimeStill/medsign/internal/config"
	"github.com/JaimeStill/medsign/internal/infrastructure"
	"github.com/JaimeStill/medsign/pkg/middleware"
	"github.com/JaimeStill/medsign/pkg/module"
	"github.com/JaimeStill/medsign/web/verify"
)

const verifyPrefix = "/verify"

type Modules struct {
	API     *module.Module
	Verify  *module.Module
	domain  *api.Domain
	runtime *api.Runtime
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	runtime := api.NewRuntime(cfg, infra)
	domain := api.NewDomain(runtime)

	apiModule, err := api.NewModule(cfg, runtime, domain)
	if err != nil {
		return nil, err
	}

	verifyModule, err := verify.NewModule(verifyPrefix, domain.Documents, infra.Logger)
	if err != nil {
		return nil, err
	}
	verifyModule.Use(middleware.Logger(infra.Logger))

	return &Modules{
		API:     apiModule,
		Verify:  verifyModule,
		domain:  domain,
		runtime: runtime,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Verify)
	api.RegisterFiles(router, m.domain.Documents, m.runtime.Logger)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}
