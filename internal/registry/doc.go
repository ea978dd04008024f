// Package registry provides the central "glue" for the component system.
//
// The Registry stores the mapping between the string identifiers used in
// pipeline descriptions (e.g., "clean_data") and the compiled Go components
// that implement them, together with the inputs and outputs each component
// documents. Component packages contribute their entries through the Module
// interface during application startup.
package registry
