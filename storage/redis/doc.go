// Package redis provides a Redis-backed storage.Store built on go-redis.
//
// Each index is stored as one Redis hash under "{prefix}:{index}", so Clear
// and Keys are single commands. Importing the package registers the
// "redis" backend with package storage.
package redis
