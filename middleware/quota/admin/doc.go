// Package admin expõe a API REST de administração da governança de quotas:
// definição de quotas e consulta de uso, sobre o mesmo Controller usado pelo
// middleware. Não deve ficar exposta publicamente.
package admin
