package mcp

// ResolveLanguage exposes resolveLanguage for tests.
var ResolveLanguage = resolveLanguage
