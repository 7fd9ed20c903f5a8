package domain

const (
	RequesterCtxKey = "smp-requester"
)

const (
	ChangeServiceGroup       = "servicegroup"
	ChangeServiceInformation = "serviceinformation"
	ChangeRedirect           = "redirect"
	ChangeBusinessCard       = "businesscard"
)

const (
	ChangeActionPut    = "put"
	ChangeActionDelete = "delete"
)
