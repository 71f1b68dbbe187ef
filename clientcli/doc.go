// Package clientcli provides a client library for the fragments HTTP API.
//
// It covers create, get, info, update, list and delete, authenticating with HTTP
// basic credentials, a bearer token, or SigV4 presigned URLs. The package includes
// profile-based configuration for managing connections to multiple servers.
//
// # Basic Usage
//
// Create a client and store a fragment:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:8080",
//		Username: "user1@email.com",
//		Password: "password1",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	created, err := client.Create(ctx, "text/markdown", []byte("# notes"))
//	html, _, err := client.Get(ctx, created.Fragment.ID, "html")
//
// # Profile Configuration
//
// Use profiles to manage multiple server configurations:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
