// Package fcgi implements the server side of the FastCGI 1.0 responder
// role: it accepts connections from an HTTP front-end (Nginx, Caddy,
// php-fpm's peers, or any other FastCGI client), decodes the binary
// record stream into a Request, invokes an application-supplied Handler,
// and serializes the Response back onto the wire.
//
// Only the Responder role is implemented. Authorizer and Filter requests
// are rejected with EndRequest(UnknownRole); connection multiplexing and
// keep-alive are rejected with EndRequest(MultiplexingUnsupported), since
// this package always closes the connection after one request.
//
// Example usage:
//
//	handler := fcgi.HandlerFunc(func(req *fcgi.Request) *fcgi.Response {
//		return fcgi.Text("hello, " + req.Path)
//	})
//
//	handle, err := fcgi.Start(":9000", handler,
//		fcgi.WithLogger(fcgizap.NewProduction()),
//		fcgi.WithMetrics(fcgi.NewMetrics(prometheus.DefaultRegisterer)),
//	)
//	if err != nil {
//		panic(err)
//	}
//
//	// ... later, on shutdown:
//	handle.Stop()
package fcgi
