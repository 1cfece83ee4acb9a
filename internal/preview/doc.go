// Package preview implements `campus serve`: the output tree is served over
// HTTP while the source tree is watched and rebuilt on change. Browsers are
// told to reload through a server-sent events endpoint.
package preview
