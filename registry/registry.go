package registry

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// Instance describes one running copy of the HTTP service.
type Instance struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
	Check   *consulapi.AgentServiceCheck
}

// ServiceRegistry defines the interface for service self-registration.
type ServiceRegistry interface {
	Register(inst Instance) error
	Deregister(id string) error
}

// InstanceID names an instance uniquely per host and port.
func InstanceID(name, host string, port int) string {
	return fmt.Sprintf("%s-%s-%d", name, host, port)
}

// HTTPCheck creates a Consul HTTP health check against checkPath.
func HTTPCheck(serviceID, host string, port int, checkPath, interval, timeout string) *consulapi.AgentServiceCheck {
	return &consulapi.AgentServiceCheck{
		CheckID:                        fmt.Sprintf("check_%s_http", serviceID),
		Name:                           fmt.Sprintf("HTTP Check for %s", serviceID),
		HTTP:                           fmt.Sprintf("http://%s:%d%s", host, port, checkPath),
		Method:                         "GET",
		Interval:                       interval,
		Timeout:                        timeout,
		DeregisterCriticalServiceAfter: "1m", // Automatically deregister after 1 minute of being critical
	}
}
