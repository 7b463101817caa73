package dashboard

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Nexus Intelligence</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Inter', -apple-system, system-ui, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; }
        .header { background: linear-gradient(135deg, #1e293b, #334155); padding: 1.5rem 2rem; border-bottom: 1px solid #475569; display: flex; justify-content: space-between; align-items: center; }
        .header h1 { font-size: 1.5rem; background: linear-gradient(135deg, #38bdf8, #818cf8); background-clip: text; -webkit-background-clip: text; -webkit-text-fill-color: transparent; }
        .search { display: flex; gap: 0.75rem; padding: 2rem 2rem 0; }
        .search input { flex: 1; max-width: 480px; padding: 0.75rem 1rem; border-radius: 8px; border: 1px solid #334155; background: #1e293b; color: #e2e8f0; font-size: 1rem; }
        .search button { padding: 0.75rem 1.5rem; border-radius: 8px; border: none; background: #38bdf8; color: #0f172a; font-weight: 600; cursor: pointer; }
        .search button:disabled { opacity: 0.5; cursor: wait; }
        .meta { padding: 0.75rem 2rem; color: #94a3b8; font-size: 0.875rem; }
        .meta .badge { padding: 0.15rem 0.6rem; border-radius: 9999px; font-weight: 600; margin-left: 0.5rem; }
        .badge.cached { background: #166534; color: #4ade80; }
        .badge.fresh { background: #854d0e; color: #fde047; }
        .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(300px, 1fr)); gap: 1rem; padding: 1rem 2rem 2rem; }
        .card { background: #1e293b; border: 1px solid #334155; border-radius: 12px; padding: 1.25rem; transition: transform 0.2s; }
        .card:hover { transform: translateY(-2px); }
        .card .title { font-size: 0.95rem; font-weight: 600; color: #f1f5f9; margin-bottom: 0.75rem; min-height: 2.5rem; }
        .card .price { font-size: 1.5rem; font-weight: 700; color: #38bdf8; }
        .card .rating { color: #fbbf24; margin-top: 0.25rem; }
        .card .insight { margin-top: 0.75rem; padding-top: 0.75rem; border-top: 1px solid #334155; font-size: 0.8rem; color: #94a3b8; }
        .card a { color: #818cf8; font-size: 0.8rem; text-decoration: none; }
        .stats { display: flex; gap: 1.5rem; padding: 0 2rem 1rem; color: #64748b; font-size: 0.8rem; flex-wrap: wrap; }
        .footer { text-align: center; padding: 1rem; color: #475569; font-size: 0.75rem; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Nexus Intelligence</h1>
        <span id="health">—</span>
    </div>
    <div class="search">
        <input id="query" type="text" placeholder="Search products, e.g. sony headphones" />
        <button id="go">Search</button>
    </div>
    <div class="meta" id="meta"></div>
    <div class="grid" id="results"></div>
    <div class="stats" id="stats"></div>
    <div class="footer">Nexus — stats refresh every 5s</div>
    <script>
        const queryEl = document.getElementById('query');
        const goEl = document.getElementById('go');

        async function search() {
            const q = queryEl.value.trim();
            if (q.length < 2) return;
            goEl.disabled = true;
            document.getElementById('meta').textContent = 'Searching "' + q + '"… a fresh scrape can take a few minutes.';
            try {
                const r = await fetch('/api/products?query=' + encodeURIComponent(q));
                if (!r.ok) {
                    const e = await r.json().catch(() => ({}));
                    document.getElementById('meta').textContent = 'Error: ' + (e.error || r.status);
                    return;
                }
                render(await r.json());
            } catch (e) {
                document.getElementById('meta').textContent = 'Request failed: ' + e;
            } finally {
                goEl.disabled = false;
            }
        }

        function render(d) {
            const badge = d.cached ? '<span class="badge cached">cached</span>' : '<span class="badge fresh">fresh</span>';
            document.getElementById('meta').innerHTML = d.count + ' result(s) for "' + d.query + '"' + badge;
            document.getElementById('results').innerHTML = d.products.map(p => {
                let html = '<div class="card"><div class="title">' + escapeHTML(p.title) + '</div>';
                html += '<div class="price">₹' + Number(p.price).toLocaleString() + '</div>';
                if (p.rating > 0) html += '<div class="rating">★ ' + p.rating.toFixed(1) + '</div>';
                if (p.insight) html += '<div class="insight"><b>' + escapeHTML(p.insight.category) + '</b> — ' + escapeHTML(p.insight.value_proposition) + '</div>';
                if (p.url) html += '<div style="margin-top:0.5rem"><a href="' + encodeURI(p.url) + '" target="_blank" rel="noopener">View listing →</a></div>';
                return html + '</div>';
            }).join('');
        }

        function escapeHTML(s) {
            return String(s ?? '').replace(/[&<>"']/g, c => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c]));
        }

        async function refreshStats() {
            try {
                const d = await (await fetch('/api/stats')).json();
                document.getElementById('stats').innerHTML = Object.entries(d)
                    .map(([k, v]) => '<span>' + k.replaceAll('_', ' ') + ': <b>' + Number(v).toLocaleString() + '</b></span>').join('');
                const h = await (await fetch('/health')).json();
                document.getElementById('health').textContent = h.status + ' · v' + h.version;
            } catch (e) {}
        }

        goEl.addEventListener('click', search);
        queryEl.addEventListener('keydown', e => { if (e.key === 'Enter') search(); });
        setInterval(refreshStats, 5000);
        refreshStats();
    </script>
</body>
</html>`
