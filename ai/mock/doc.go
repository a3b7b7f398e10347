// Package mock provides test doubles for the ai interfaces. The defaults are
// deterministic so tests stay reproducible; behavior can be overridden per
// test through the exported function fields.
package mock
