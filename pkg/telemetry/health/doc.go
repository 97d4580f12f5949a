// Package health provides liveness, readiness and version endpoints.
//
// Liveness (/health) answers as long as the process serves HTTP. Readiness
// (/ready) runs every registered check; conduit registers RouterCheck, which
// fails while no provider can be admitted.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("router", health.RouterCheck(srv.Router))
//	mux.HandleFunc("GET /health", checker.LivenessHandler())
//	mux.HandleFunc("GET /ready", checker.ReadinessHandler())
package health
