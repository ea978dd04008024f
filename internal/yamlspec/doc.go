// Package yamlspec loads pipeline descriptions written in the YAML
// pipeline-job shape, where references use `${{ parent.jobs.<job>.outputs.<output> }}`
// and `${{ parent.inputs.<name> }}` expressions. It walks the yaml.v3 node
// tree directly so jobs and outputs keep document order.
package yamlspec
