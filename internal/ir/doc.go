// Package ir provides the intermediate representation for the CPrime front end.
//
// This package contains the arenas and type definitions shared by every
// compilation layer. All other internal packages import ir; ir imports
// nothing internal. This ensures IR remains the foundational layer with no
// circular dependencies.
//
// Key design constraints:
//   - Arenas are append-only; indices handed out are stable for the whole
//     compilation session and never relocate.
//   - Components other than the owning layer treat arena contents as
//     read-only. The two sanctioned in-place mutations are the population of
//     Instruction.Contextual during contextualisation and footer replacement
//     during meta-execution expansion.
//   - Scope indices are capped at 2^31-1 so a scope reference can be packed
//     into the high bit of a ContextualKind.
package ir
