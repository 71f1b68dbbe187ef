// Package http serves the fragments API over HTTP.
//
// # Routes
//
//	GET    /                            health check, no authentication
//	GET    /v1/fragments[?expand=1]     list the caller's fragments
//	POST   /v1/fragments                create a fragment from the request body
//	GET    /v1/fragments/{id}           raw payload with the fragment's type
//	GET    /v1/fragments/{id}.{ext}     payload converted to ext
//	GET    /v1/fragments/{id}/info      metadata and available formats
//	PUT    /v1/fragments/{id}           replace the payload, same base type only
//	DELETE /v1/fragments/{id}           delete metadata and payload
//
// Every /v1 route runs behind AuthMiddleware, which resolves the caller with an
// auth.Resolver and stores the derived fragments.OwnerID in the request context.
//
// # Responses
//
// Successful JSON responses carry "status":"ok" next to their fields. Failures use
//
//	{"status":"error","error":{"code":404,"message":"fragment not found"}}
//
// with the status chosen by StatusFor: invalid input 400, unauthorized 401,
// missing fragment 404, body over the size limit 413, unsupported type or
// conversion 415, anything else 500.
//
// # Usage
//
//	resolver, _ := auth.New(auth.Config{Strategy: auth.StrategyBasic, HtpasswdFile: ".htpasswd"})
//	handler := http.NewHandler(&http.HandlerConfig{Resolver: resolver}, manager)
//	http.ListenAndServe(":8080", handler.Router())
package http
