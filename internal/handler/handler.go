// Package handler is the first layer after the router.
//
// It binds and validates requests using the validation package, calls the
// item repository and maps the results onto HTTP statuses and JSON bodies.
package handler
