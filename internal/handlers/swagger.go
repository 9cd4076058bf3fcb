package handlers

// @title Item Manager API
// @version 1.0
// @description Dispatches create, read, update, delete and echo operations against a key-value item table.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @tag.name items
// @tag.description Item table operations

// @tag.name health
// @tag.description Service health
