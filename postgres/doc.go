/*
Package postgres manages the connection to a PostgreSQL database through GORM.

The schema and queries belong to the application;
this package owns connecting, probing, and tearing down.
*/
package postgres
