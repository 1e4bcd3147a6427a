package main

import (
	"anisync/internal/services"
)

// retryPolicy is shared by sync and changeset apply so both back off the
// same way on transient collaborator failures.
func retryPolicy() services.RetryPolicy {
	return services.RetryPolicy{
		Attempts: services.DefaultRetryAttempts,
	}
}
