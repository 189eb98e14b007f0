package browser

// BridgeClientScript is the JavaScript shim a page embeds to expose its
// session history over the bridge WebSocket. It reports the initial URL and
// entry state, forwards every popstate, and applies push/replace/go
// commands from the server.
const BridgeClientScript = `
<script>
(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;
    var ws = null;

    function stateString(s) {
        return (s === null || s === undefined) ? null : String(s);
    }

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(protocol + '//' + location.host + '/ws');

        ws.onopen = function() {
            console.log('[navstack] bridge connected');
            reconnectDelay = 1000;
            ws.send(JSON.stringify({
                type: 'init',
                origin: location.origin + location.pathname,
                fragment: location.hash,
                state: stateString(history.state)
            }));
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }

            switch (msg.type) {
                case 'push':
                    history.pushState(msg.state, '', msg.url);
                    break;

                case 'replace':
                    history.replaceState(msg.state, '', msg.url);
                    break;

                case 'go':
                    history.go(msg.delta);
                    break;
            }
        };

        ws.onclose = function() {
            console.log('[navstack] bridge lost, reconnecting in', reconnectDelay + 'ms');
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    window.addEventListener('popstate', function(e) {
        if (ws && ws.readyState === WebSocket.OPEN) {
            ws.send(JSON.stringify({
                type: 'popstate',
                fragment: location.hash,
                state: stateString(e.state)
            }));
        }
    });

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
</script>
`
