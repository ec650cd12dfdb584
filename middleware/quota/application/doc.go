// Package application contém os casos de uso da governança de quotas:
// a decisão de admissão (Controller) e a aquisição de vagas de conexão.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Controller.CheckQuota(p, t, n) retorna (allowed, err) sem efeito colateral.
package application
