// Package helper provides test doubles and fixtures shared by the journal engine and simulation tests.
package helper
